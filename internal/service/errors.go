package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/parisxmas/vacancyform/internal/notify"
)

// ValidationError rejects a submission before anything is written. It lists
// every offending field, not just the first.
type ValidationError struct {
	Missing      []string `json:"missing,omitempty"`
	InvalidEmail []string `json:"invalidEmail,omitempty"`
	Invalid      []string `json:"invalid,omitempty"`
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.InvalidEmail) > 0 {
		parts = append(parts, "invalid email: "+strings.Join(e.InvalidEmail, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid value: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) empty() bool {
	return len(e.Missing) == 0 && len(e.InvalidEmail) == 0 && len(e.Invalid) == 0
}

// StorageError means the document or the log row could not be written.
// Nothing already written is cleaned up.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// TransportError means remote delivery failed after the submission was
// persisted. It is reported as a warning.
type TransportError struct {
	Notifier string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("delivery via %s failed: %v", e.Notifier, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthFailed reports whether the remote side rejected the credentials.
func (e *TransportError) AuthFailed() bool {
	return errors.Is(e.Err, notify.ErrAuthentication)
}

// Warning is the message shown to the submitter.
func (e *TransportError) Warning() string {
	if e.AuthFailed() {
		return fmt.Sprintf("Your submission was saved, but sending it via %s failed: authentication was rejected. Please check your credentials; the team has not been notified.", e.Notifier)
	}
	return fmt.Sprintf("Your submission was saved, but sending it via %s failed (%v). Please contact us so we can follow up.", e.Notifier, e.Err)
}
