// Package activitymap flattens account activity events into the record the
// audit topic carries. Emails are masked unless WithRawEmail is given.
package activitymap

import (
	"strings"
	"time"

	accounts "github.com/goliatone/go-accounts"
)

const (
	MetadataKeyActorType   = "actor_type"
	MetadataKeyFromStatus  = "from_status"
	MetadataKeyToStatus    = "to_status"
	MetadataKeyEmail       = "email"
	MetadataKeyEmailDomain = "email_domain"
	MetadataKeyReason      = "reason"
)

// Severity grades an event for alerting.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rollback reasons attached to failed registrations.
const (
	ReasonActivationEmailFailed = "activation_email_failed"
	ReasonAccountLeftBehind     = "account_left_behind"
)

const (
	defaultChannel = "accounts"
	objectType     = "account"
	systemActor    = "system"
)

// Normalized is the record published to downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	Severity   Severity       `json:"severity"`
	ObjectType string         `json:"object_type"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel  string
	rawEmail bool
}

// WithChannel sets the channel, "accounts" by default.
func WithChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		if channel = strings.TrimSpace(channel); channel != "" {
			opts.channel = channel
		}
	}
}

// WithRawEmail publishes email addresses unmasked.
func WithRawEmail() Option {
	return func(opts *normalizeOptions) {
		opts.rawEmail = true
	}
}

// Normalize converts an account activity event into a Normalized record.
// The actor falls back to the account id and then to "system".
func Normalize(event accounts.ActivityEvent, opts ...Option) Normalized {
	options := normalizeOptions{channel: defaultChannel}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	accountID := strings.TrimSpace(event.AccountID)
	actorID := strings.TrimSpace(event.Actor.ID)
	if actorID == "" {
		actorID = accountID
	}
	if actorID == "" {
		actorID = systemActor
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Normalized{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		Severity:   SeverityOf(event.EventType),
		ObjectType: objectType,
		ObjectID:   accountID,
		Channel:    options.channel,
		Metadata:   normalizeMetadata(event, options.rawEmail),
		OccurredAt: occurredAt,
	}
}

// SeverityOf grades an event type. A failed compensation leaves an orphaned
// pending account behind.
func SeverityOf(eventType accounts.ActivityEventType) Severity {
	switch eventType {
	case accounts.ActivityEventCompensationFailed:
		return SeverityCritical
	case accounts.ActivityEventRegistrationRolledBack:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// MaskEmail keeps the first character of the local part and the domain:
// "user1@gmail.com" becomes "u***@gmail.com".
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	first := []rune(email[:at])[0]
	return string(first) + "***" + email[at:]
}

func normalizeMetadata(event accounts.ActivityEvent, rawEmail bool) map[string]any {
	metadata := make(map[string]any, len(event.Metadata)+4)
	for key, value := range event.Metadata {
		metadata[key] = value
	}

	if email, ok := metadata[MetadataKeyEmail].(string); ok && email != "" {
		if at := strings.LastIndex(email, "@"); at >= 0 {
			metadata[MetadataKeyEmailDomain] = strings.ToLower(email[at+1:])
		}
		if !rawEmail {
			metadata[MetadataKeyEmail] = MaskEmail(email)
		}
	}

	if actorType := strings.TrimSpace(event.Actor.Type); actorType != "" {
		if _, exists := metadata[MetadataKeyActorType]; !exists {
			metadata[MetadataKeyActorType] = actorType
		}
	}
	if event.FromStatus != "" {
		metadata[MetadataKeyFromStatus] = event.FromStatus
	}
	if event.ToStatus != "" {
		metadata[MetadataKeyToStatus] = event.ToStatus
	}

	if _, exists := metadata[MetadataKeyReason]; !exists {
		switch event.EventType {
		case accounts.ActivityEventRegistrationRolledBack:
			metadata[MetadataKeyReason] = ReasonActivationEmailFailed
		case accounts.ActivityEventCompensationFailed:
			metadata[MetadataKeyReason] = ReasonAccountLeftBehind
		}
	}

	if len(metadata) == 0 {
		return nil
	}
	return metadata
}
