package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/castaxyz/vetcare-stable/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReminders = "jobs:reminders"
	QueueInvoices  = "jobs:invoices"
)

// Job is the generic envelope for all async tasks. Attempts counts failed
// deliveries; the retry cron re-enqueues until MaxEmailAttempts is reached.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts,omitempty"`
}

// ReminderPayload carries everything the reminder email needs, so workers
// never touch the database.
type ReminderPayload struct {
	AppointmentID string `json:"appointment_id"`
	ClientEmail   string `json:"client_email"`
	ClientName    string `json:"client_name"`
	PetName       string `json:"pet_name"`
	StartsAt      string `json:"starts_at"` // RFC 3339
	ClinicName    string `json:"clinic_name"`
}

// InvoiceEmailPayload asks a worker to mail an already-generated invoice PDF.
type InvoiceEmailPayload struct {
	InvoiceNumber string `json:"invoice_number"`
	ClientEmail   string `json:"client_email"`
	ClientName    string `json:"client_name"`
	PDFPath       string `json:"pdf_path"`
	ClinicName    string `json:"clinic_name"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReminder pushes an appointment reminder job to Redis.
func (d *Dispatcher) EnqueueReminder(ctx context.Context, payload ReminderPayload) error {
	return d.enqueue(ctx, QueueReminders, "reminder", payload)
}

// EnqueueInvoiceEmail pushes an invoice delivery job to Redis.
func (d *Dispatcher) EnqueueInvoiceEmail(ctx context.Context, payload InvoiceEmailPayload) error {
	return d.enqueue(ctx, QueueInvoices, "invoice_email", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, mailer *infra.Mailer, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, mailer, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, mailer *infra.Mailer, id int) {
	queues := []string{QueueReminders, QueueInvoices}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, mailer, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, mailer *infra.Mailer, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	var err error
	switch job.Type {
	case "reminder":
		err = handleReminder(mailer, job.Payload)
	case "invoice_email":
		err = handleInvoiceEmail(mailer, job.Payload)
	default:
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("unknown job type, dropping")
		return
	}
	if err != nil {
		scheduleRetry(ctx, rdb, queue, job, err)
	}
}

func handleReminder(mailer *infra.Mailer, raw json.RawMessage) error {
	var p ReminderPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		// A payload that never unmarshals will never succeed; don't retry.
		log.Error().Err(err).Msg("reminder: bad payload, dropping")
		return nil
	}
	if p.ClientEmail == "" {
		log.Debug().Str("appointment_id", p.AppointmentID).Msg("reminder: client has no email, skipping")
		return nil
	}

	when := p.StartsAt
	if t, err := time.Parse(time.RFC3339, p.StartsAt); err == nil {
		when = t.Format("Monday, 02 Jan 2006 at 15:04")
	}

	subject := fmt.Sprintf("Appointment reminder — %s", p.PetName)
	body := fmt.Sprintf(
		"Hello %s,\n\nThis is a reminder that %s has an appointment at %s on %s.\n\nSee you soon!\n%s",
		p.ClientName, p.PetName, p.ClinicName, when, p.ClinicName,
	)

	if err := mailer.Send(p.ClientEmail, subject, body, ""); err != nil {
		log.Error().Err(err).Str("appointment_id", p.AppointmentID).Msg("reminder: send failed")
		return err
	}
	log.Info().Str("appointment_id", p.AppointmentID).Msg("reminder sent")
	return nil
}

func handleInvoiceEmail(mailer *infra.Mailer, raw json.RawMessage) error {
	var p InvoiceEmailPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error().Err(err).Msg("invoice_email: bad payload, dropping")
		return nil
	}
	if p.ClientEmail == "" {
		log.Debug().Str("invoice", p.InvoiceNumber).Msg("invoice_email: client has no email, skipping")
		return nil
	}

	subject := fmt.Sprintf("Invoice %s from %s", p.InvoiceNumber, p.ClinicName)
	body := fmt.Sprintf(
		"Hello %s,\n\nPlease find attached invoice %s.\n\nRegards,\n%s",
		p.ClientName, p.InvoiceNumber, p.ClinicName,
	)

	if err := mailer.Send(p.ClientEmail, subject, body, p.PDFPath); err != nil {
		log.Error().Err(err).Str("invoice", p.InvoiceNumber).Msg("invoice_email: send failed")
		return err
	}
	log.Info().Str("invoice", p.InvoiceNumber).Msg("invoice emailed")
	return nil
}
