package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	apperrors "vaulthook/internal/errors"
	"vaulthook/internal/metrics"
	"vaulthook/internal/models"
	"vaulthook/internal/privacy"
	"vaulthook/pkg/twilio"
)

// AdmissionResult is the HTTP outcome of processing one inbound webhook.
type AdmissionResult struct {
	Status int
	Body   map[string]interface{}
}

// AdmissionService runs the webhook pipeline: signature verification,
// classification, the privacy gate, user resolution, job admission and the
// acknowledgement reaction. Its contract with the caller is strict: the only
// non-200 outcome is a signature failure. Every processing error is captured
// in the dead letter queue and answered with 200 so the upstream provider
// never retries an event we have already taken responsibility for.
type AdmissionService struct {
	cfg        *models.Config
	resolver   *UserResolver
	admitter   *JobAdmitter
	deadLetter *DeadLetterRecorder
	notifier   *AckNotifier
	logger     *logrus.Logger
}

func NewAdmissionService(
	cfg *models.Config,
	resolver *UserResolver,
	admitter *JobAdmitter,
	deadLetter *DeadLetterRecorder,
	notifier *AckNotifier,
	logger *logrus.Logger,
) *AdmissionService {
	return &AdmissionService{
		cfg:        cfg,
		resolver:   resolver,
		admitter:   admitter,
		deadLetter: deadLetter,
		notifier:   notifier,
		logger:     logger,
	}
}

// HandleInbound processes one decoded webhook request. requestURL is the
// full URL the provider signed and form holds the decoded POST fields.
func (s *AdmissionService) HandleInbound(ctx context.Context, requestURL, signature string, form map[string]string) (result AdmissionResult) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.WithField("panic", rec).Error("Webhook pipeline panicked")
			result = s.failure(ctx, form, fmt.Errorf("internal panic: %v", rec), models.DeadLetterContext{})
		}
	}()

	// A missing signing secret is a deployment fault, not a caller fault.
	// Rejecting with 403 would make the provider retry forever, so the
	// request is dead-lettered and acknowledged instead.
	if s.cfg.Twilio.AuthToken == "" {
		err := apperrors.New(apperrors.ErrCodeMissingConfig, "TWILIO_AUTH_TOKEN is not configured, cannot verify webhook signatures")
		s.logger.WithField("error_code", apperrors.ErrCodeMissingConfig).Error("Dropping request: signing secret not configured")
		return s.failure(ctx, form, err, models.DeadLetterContext{})
	}

	if !twilio.ValidateRequest(s.cfg.Twilio.AuthToken, signature, requestURL, form) {
		metrics.IncrementCounter("webhook_signature_failures_total", nil, "Webhook requests rejected for bad signatures")
		s.logger.WithFields(logrus.Fields{
			"url": requestURL,
		}).Warn("Rejected webhook with invalid signature")
		return AdmissionResult{
			Status: http.StatusForbidden,
			Body:   map[string]interface{}{"error": "Forbidden"},
		}
	}

	evt := Classify(form, s.cfg.Twilio.BotMentionToken)

	if evt.ShouldIgnore() {
		metrics.IncrementCounter("privacy_gate_drops_total", nil, "Group messages dropped by the privacy gate")
		s.logger.WithFields(logrus.Fields{
			"source_channel_id": privacy.MaskChannelID(evt.ConversationID),
		}).Info("Ignoring untagged group message")
		return AdmissionResult{
			Status: http.StatusOK,
			Body:   map[string]interface{}{"message": "Ignored (Privacy Gate)"},
		}
	}

	dlctx := models.DeadLetterContext{
		UserPhone:       evt.Sender,
		SourceType:      string(evt.Kind),
		SourceChannelID: evt.ConversationID,
	}

	userID, err := s.resolver.Resolve(ctx, evt.Sender, evt.ProfileName)
	if err != nil {
		return s.failure(ctx, form, err, dlctx)
	}

	jobID, err := s.admitter.Admit(ctx, evt, userID)
	if err != nil {
		return s.failure(ctx, form, err, dlctx)
	}

	s.notifier.SendReaction(evt)

	return AdmissionResult{
		Status: http.StatusOK,
		Body:   map[string]interface{}{"message": "Job Queued", "jobId": jobID},
	}
}

// failure dead-letters the event and produces the generic processing error
// response. The status is deliberately 200: the event is preserved on our
// side and the provider must not redeliver it.
func (s *AdmissionService) failure(ctx context.Context, form map[string]string, cause error, dlctx models.DeadLetterContext) AdmissionResult {
	s.logger.WithError(cause).WithFields(logrus.Fields{
		"user_phone": privacy.MaskPhoneNumber(dlctx.UserPhone),
	}).Error("Webhook processing failed")

	s.deadLetter.Record(ctx, form, cause, dlctx)

	details := "unknown error"
	if cause != nil {
		details = cause.Error()
	}
	return AdmissionResult{
		Status: http.StatusOK,
		Body:   map[string]interface{}{"error": "Internal Server Error", "details": details},
	}
}
