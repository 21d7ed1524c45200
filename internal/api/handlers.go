package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/studybot/internal/classify"
	"github.com/kalambet/studybot/internal/metrics"
	"github.com/kalambet/studybot/internal/notify"
	"github.com/kalambet/studybot/internal/pending"
	"github.com/kalambet/studybot/internal/sms"
)

// EmailRequest is the inbound email webhook body.
type EmailRequest struct {
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	FromEmail string `json:"from_email"`
}

func handleEmail(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req EmailRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeText(w, http.StatusBadRequest, "Missing payload")
			return
		}

		res, err := deps.Classifier.Classify(r.Context(), req.Subject, req.Body)
		if err != nil {
			metrics.EmailsClassified.WithLabelValues("error").Inc()
			slog.Error("email classification failed", "from", req.FromEmail, "error", err)
			writeText(w, http.StatusBadGateway, "Classification failed")
			return
		}
		metrics.EmailsClassified.WithLabelValues(string(res.Decision)).Inc()

		if res.Decision != classify.DecisionYes {
			writeText(w, http.StatusOK, "Processed")
			return
		}

		name := classify.NameFromAddress(req.FromEmail)
		deps.Slot.Put(pending.Candidate{Email: req.FromEmail, Name: name})

		ev := notify.NewEmailEvent(notify.EmailEvent{
			Name:    name,
			Address: req.FromEmail,
			Summary: res.Summary,
			Reason:  res.Reason,
		})
		if err := deps.Relay.Send(r.Context(), ev); err != nil {
			metrics.RelayEvents.WithLabelValues(string(ev.Type), "error").Inc()
		} else {
			metrics.RelayEvents.WithLabelValues(string(ev.Type), "ok").Inc()
		}

		if deps.SMS != nil {
			if _, err := deps.SMS.Send(r.Context(), sms.CandidateMessage(res.Summary, res.Reason)); err != nil {
				slog.Warn("operator sms failed", "error", err)
			}
		}

		writeText(w, http.StatusOK, "Processed")
	}
}

func handleSMS(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		body := strings.ToLower(strings.TrimSpace(r.PostFormValue("Body")))

		switch body {
		case "yes":
			c, ok := deps.Slot.Take()
			if !ok {
				slog.Info("sms yes with no pending candidate")
				break
			}
			metrics.HumanDecisions.WithLabelValues("sms", "approve").Inc()
			if c.Email == "" {
				slog.Warn("sms yes for candidate without email")
				break
			}
			if err := deps.Enroller.Enroll(r.Context(), c); err != nil {
				metrics.Enrollments.WithLabelValues("error").Inc()
				slog.Warn("enrollment failed", "email", c.Email, "error", err)
			} else {
				metrics.Enrollments.WithLabelValues("ok").Inc()
			}
		case "no":
			if _, ok := deps.Slot.Take(); ok {
				metrics.HumanDecisions.WithLabelValues("sms", "reject").Inc()
			}
			slog.Info("candidate email ignored")
		}

		writeText(w, http.StatusOK, "OK")
	}
}

func handleNotify(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		data, err := io.ReadAll(r.Body)
		if err != nil || len(strings.TrimSpace(string(data))) == 0 {
			writeText(w, http.StatusBadRequest, "Missing payload")
			return
		}
		var ev notify.Event
		if err := json.Unmarshal(data, &ev); err != nil || ev.Validate() != nil {
			writeText(w, http.StatusBadRequest, "Missing payload")
			return
		}

		email, name := ev.Candidate()
		if err := deps.Pending.Put(r.Context(), ev.ID, pending.Candidate{Email: email, Name: name}); err != nil {
			slog.Error("storing pending action failed", "notification_id", ev.ID, "error", err)
			writeText(w, http.StatusInternalServerError, "Error processing notification")
			return
		}

		if err := deps.Chat.Post(r.Context(), ev); err != nil {
			slog.Error("posting notification failed", "notification_id", ev.ID, "error", err)
			if _, _, rbErr := deps.Pending.Take(r.Context(), ev.ID); rbErr != nil {
				slog.Error("rolling back pending action failed", "notification_id", ev.ID, "error", rbErr)
			}
			writeText(w, http.StatusInternalServerError, "Error processing notification")
			return
		}

		writeText(w, http.StatusOK, "OK")
	}
}

func handleApprove(actions *Actions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		c, err := actions.Approve(r.Context(), "button", id)
		switch {
		case errors.Is(err, pending.ErrNotFound):
			httpError(w, http.StatusNotFound, "not_found_error", "notification not found")
			return
		case errors.Is(err, ErrNoEmail):
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "notification has no email address")
			return
		case err != nil:
			httpError(w, http.StatusBadGateway, "api_error", "failed to send template email: %v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "sent", "name": c.Name})
	}
}

func handleReject(actions *Actions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := actions.Reject(r.Context(), "button", chi.URLParam(r, "id")); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		writeJSON(w, map[string]string{"status": "ignored"})
	}
}

func handlePoll(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// A client disconnect must not cut a cycle short.
		res, err := deps.Poller.RunOnce(context.WithoutCancel(r.Context()))
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "poll failed: %v", err)
			return
		}
		writeJSON(w, res)
	}
}
