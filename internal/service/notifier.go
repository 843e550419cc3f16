package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"vaulthook/internal/constants"
	"vaulthook/internal/metrics"
	"vaulthook/internal/models"
	"vaulthook/internal/privacy"
	"vaulthook/pkg/circuitbreaker"
	"vaulthook/pkg/twilio"
)

// AckNotifier sends the best-effort acknowledgement reaction back to the
// sender. It is entirely decoupled from admission: a send failure is logged
// and counted but never affects the webhook response, and sends are skipped
// outright when the configured credentials are absent or mock.
type AckNotifier struct {
	client       twilio.Client
	breaker      *circuitbreaker.CircuitBreaker
	logger       *logrus.Logger
	reactionBody string
	timeout      time.Duration
	enabled      bool
}

func NewAckNotifier(cfg models.TwilioConfig, logger *logrus.Logger) *AckNotifier {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(constants.DefaultTwilioTimeoutSec) * time.Second
	}
	n := &AckNotifier{
		logger:       logger,
		reactionBody: cfg.ReactionBody,
		timeout:      timeout,
	}

	if isMockCredentials(cfg) {
		logger.Info("Ack notifier disabled: mock or missing Twilio credentials")
		return n
	}

	n.enabled = true
	n.client = twilio.NewClient(twilio.ClientConfig{
		AccountSID: cfg.AccountSID,
		AuthToken:  cfg.AuthToken,
		BaseURL:    cfg.APIBaseURL,
		Timeout:    n.timeout,
	})
	n.breaker = circuitbreaker.New("twilio-ack", 5, 30*time.Second, logger)
	return n
}

func isMockCredentials(cfg models.TwilioConfig) bool {
	return cfg.AccountSID == "" ||
		cfg.AccountSID == constants.MockAccountSID ||
		cfg.AuthToken == "" ||
		strings.Contains(cfg.AuthToken, "mock")
}

// SendReaction fires the acknowledgement asynchronously and returns
// immediately. The spawned send uses its own deadline detached from the
// request context so it survives the webhook response.
func (n *AckNotifier) SendReaction(evt *models.InboundEvent) {
	if !n.enabled {
		return
	}

	from := evt.Recipient
	to := evt.RawFrom
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		err := n.breaker.Execute(ctx, func(ctx context.Context) error {
			_, sendErr := n.client.SendMessage(ctx, from, to, n.reactionBody)
			return sendErr
		})
		if err != nil {
			metrics.IncrementCounter("ack_reaction_failures_total", nil, "Acknowledgement reactions that failed to send")
			n.logger.WithError(err).WithFields(logrus.Fields{
				"recipient": privacy.MaskPhoneNumber(evt.Sender),
			}).Warn("Failed to send acknowledgement reaction")
			return
		}

		metrics.IncrementCounter("ack_reactions_sent_total", nil, "Acknowledgement reactions sent")
	}()
}
