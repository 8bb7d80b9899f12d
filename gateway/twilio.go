package gateway

import (
	"context"
	"net/http"

	"salonpro-notifier/apperrors"
	"salonpro-notifier/utils"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioClient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"golang.org/x/time/rate"
)

// MessageCreator is the slice of the Twilio REST API the sender uses.
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioConfig struct {
	AccountSID         string
	AuthToken          string
	PhoneNumber        string
	WhatsAppNumber     string
	DefaultCountryCode string
}

// TwilioSender delivers through Twilio, over WhatsApp when a WhatsApp sender
// number is configured and SMS otherwise.
type TwilioSender struct {
	cfg     TwilioConfig
	api     MessageCreator
	limiter *rate.Limiter
	retry   RetryPolicy
	log     zerolog.Logger
}

func NewTwilioSender(cfg TwilioConfig, log zerolog.Logger, opts ...Option) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return NewTwilioSenderWithAPI(cfg, client.Api, log, opts...)
}

func NewTwilioSenderWithAPI(cfg TwilioConfig, api MessageCreator, log zerolog.Logger, opts ...Option) *TwilioSender {
	o := buildOptions(opts)
	return &TwilioSender{
		cfg:     cfg,
		api:     api,
		limiter: o.limiter,
		retry:   o.retry,
		log:     log.With().Str("component", "twilio").Logger(),
	}
}

func (s *TwilioSender) Provider() string { return ProviderTwilio }

func (s *TwilioSender) EnsureAuthenticated() error {
	if s.cfg.AccountSID == "" || s.cfg.AuthToken == "" {
		return apperrors.Configuration("twilio credentials are not configured", "set TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN")
	}
	if s.cfg.PhoneNumber == "" && s.cfg.WhatsAppNumber == "" {
		return apperrors.Configuration("twilio sender number is not configured", "set TWILIO_WHATSAPP_NUMBER or TWILIO_PHONE_NUMBER")
	}
	return nil
}

func (s *TwilioSender) SendMessage(ctx context.Context, phone, message string) Result {
	if err := s.EnsureAuthenticated(); err != nil {
		return Result{Err: err}
	}
	normalized, err := utils.NormalizePhone(phone, s.cfg.DefaultCountryCode)
	if err != nil {
		return Result{Err: apperrors.Terminal(errors.Wrapf(err, "phone %q", phone))}
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return Result{Err: apperrors.Terminal(errors.Wrap(err, "twilio: rate limiter"))}
		}
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetBody(message)
	if s.cfg.WhatsAppNumber != "" {
		params.SetTo("whatsapp:+" + normalized)
		params.SetFrom("whatsapp:" + s.cfg.WhatsAppNumber)
	} else {
		params.SetTo("+" + normalized)
		params.SetFrom(s.cfg.PhoneNumber)
	}

	return s.retry.Do(ctx, s.log, "create-message", func(ctx context.Context, attempt int) Result {
		resp, err := s.api.CreateMessage(params)
		if err != nil {
			return classifyTwilioError(ctx, err)
		}
		body := map[string]interface{}{}
		if resp != nil && resp.Sid != nil {
			body["sid"] = *resp.Sid
		}
		if resp != nil && resp.Status != nil {
			body["status"] = *resp.Status
		}
		return Result{Success: true, HTTPStatus: http.StatusCreated, Body: body}
	})
}

func classifyTwilioError(ctx context.Context, err error) Result {
	var restErr *twilioClient.TwilioRestError
	if errors.As(err, &restErr) {
		res := Result{
			HTTPStatus: restErr.Status,
			Body:       map[string]interface{}{"message": restErr.Message, "code": restErr.Code},
		}
		wrapped := errors.Wrapf(err, "twilio returned %d", restErr.Status)
		if IsRetryableStatus(restErr.Status) {
			res.Err = apperrors.Transient(wrapped)
		} else {
			res.Err = apperrors.Terminal(wrapped)
		}
		return res
	}
	return Result{Err: classifyTransportError(ctx, err)}
}
