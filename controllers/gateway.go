package controllers

import (
	"context"
	"net/http"

	"salonpro-notifier/apperrors"
	"salonpro-notifier/gateway"
	"salonpro-notifier/utils"

	"github.com/gin-gonic/gin"
)

// GatewayController manages the WhatsApp gateway session.
type GatewayController struct {
	Store *gateway.TokenStore
	// NewClient builds a client for one configuration snapshot.
	NewClient func(cfg gateway.Config) *gateway.Client
}

func (g *GatewayController) Status(c *gin.Context) {
	g.sessionCall(c, (*gateway.Client).SessionStatus)
}

func (g *GatewayController) StartSession(c *gin.Context) {
	g.sessionCall(c, (*gateway.Client).StartSession)
}

func (g *GatewayController) CloseSession(c *gin.Context) {
	g.sessionCall(c, (*gateway.Client).CloseSession)
}

func (g *GatewayController) LogoutSession(c *gin.Context) {
	g.sessionCall(c, (*gateway.Client).LogoutSession)
}

// GenerateToken asks the gateway for a new bearer token and installs it for
// subsequent runs. Runs already in progress keep their token.
func (g *GatewayController) GenerateToken(c *gin.Context) {
	client := g.NewClient(g.Store.Snapshot())
	token, res := client.GenerateToken(c.Request.Context())
	if token == "" {
		g.respondResult(c, res)
		return
	}
	g.Store.SetToken(token)
	c.JSON(http.StatusOK, gin.H{"message": "Gateway token updated"})
}

func (g *GatewayController) sessionCall(c *gin.Context, call func(*gateway.Client, context.Context) gateway.Result) {
	client := g.NewClient(g.Store.Snapshot())
	res := call(client, c.Request.Context())
	if !res.Success {
		g.respondResult(c, res)
		return
	}
	c.JSON(http.StatusOK, res.Body)
}

func (g *GatewayController) respondResult(c *gin.Context, res gateway.Result) {
	if res.Err != nil && apperrors.IsConfiguration(res.Err) {
		respondError(c, res.Err, "")
		return
	}
	msg := res.Message()
	if msg == "" && res.Err != nil {
		msg = res.Err.Error()
	}
	utils.RespondWithError(c, http.StatusBadGateway, "Gateway error: "+msg)
}
