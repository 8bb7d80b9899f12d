package commands

import (
	"context"
	"fmt"

	"salonpro-notifier/gateway"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// GatewayCmd manages the WhatsApp gateway session.
var GatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Manage the WhatsApp gateway session",
	Long: `Manage the WhatsApp gateway session named by GATEWAY_SESSION.

Examples:
  salonpro-notifier gateway token     # print a new bearer token for GATEWAY_TOKEN
  salonpro-notifier gateway start     # start the session (scan the QR code on the gateway)
  salonpro-notifier gateway status`,
}

func gatewaySessionCmd(use, short string, call func(*gateway.Client, context.Context) gateway.Result) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newGatewayClient()
			if err != nil {
				return err
			}
			res := call(client, cmd.Context())
			if !res.Success {
				return gatewayError(res)
			}
			printJSON(res.Body)
			return nil
		},
	}
}

var gatewayTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Generate a bearer token for the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newGatewayClient()
		if err != nil {
			return err
		}
		token, res := client.GenerateToken(cmd.Context())
		if token == "" {
			return gatewayError(res)
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	GatewayCmd.AddCommand(gatewaySessionCmd("status", "Show the session status", (*gateway.Client).SessionStatus))
	GatewayCmd.AddCommand(gatewaySessionCmd("start", "Start the session", (*gateway.Client).StartSession))
	GatewayCmd.AddCommand(gatewaySessionCmd("close", "Close the session", (*gateway.Client).CloseSession))
	GatewayCmd.AddCommand(gatewaySessionCmd("logout", "Log the session out of WhatsApp", (*gateway.Client).LogoutSession))
	GatewayCmd.AddCommand(gatewayTokenCmd)
}

// newGatewayClient needs no database.
func newGatewayClient() (*gateway.Client, error) {
	settings, log, err := loadSettings()
	if err != nil {
		return nil, err
	}
	return gateway.NewClient(gatewayConfig(settings), log, gateway.WithRetryPolicy(gateway.RetryPolicy{MaxAttempts: settings.Gateway.MaxAttempts})), nil
}

func gatewayError(res gateway.Result) error {
	if res.Err != nil {
		return res.Err
	}
	return errors.Newf("gateway returned %d: %s", res.HTTPStatus, res.Message())
}
