package sdc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hupe1980/swm/core"
)

// Kind names a launch context entry.
type Kind string

const (
	KindPatient   Kind = "patient"
	KindEncounter Kind = "encounter"
	KindUser      Kind = "user"
)

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindPatient, KindEncounter, KindUser:
		return true
	default:
		return false
	}
}

var (
	// ErrInvalidLaunchContext is returned for entries with an unknown kind or
	// without exactly one of reference and resource.
	ErrInvalidLaunchContext = errors.New("invalid launch context")

	// ErrMissingQuestionnaire is returned by SendDisplayQuestionnaire when no
	// questionnaire was given.
	ErrMissingQuestionnaire = errors.New("missing questionnaire")
)

// Reference is a FHIR Reference as carried inside SDC payloads.
type Reference struct {
	Reference string `json:"reference,omitempty"`
	Type      string `json:"type,omitempty"`
	Display   string `json:"display,omitempty"`
}

// LaunchContext is one launch context entry.
type LaunchContext struct {
	Name             Kind            `json:"name"`
	ContentReference *Reference      `json:"contentReference,omitempty"`
	ContentResource  json.RawMessage `json:"contentResource,omitempty"`
}

// Ref builds an entry pointing at a resource by reference.
func Ref(kind Kind, ref Reference) LaunchContext {
	return LaunchContext{Name: kind, ContentReference: &ref}
}

// Inline builds an entry carrying the resource itself.
func Inline(kind Kind, resource json.RawMessage) LaunchContext {
	return LaunchContext{Name: kind, ContentResource: resource}
}

func (lc LaunchContext) validate() error {
	if !lc.Name.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidLaunchContext, lc.Name)
	}
	hasRef := lc.ContentReference != nil
	hasResource := len(lc.ContentResource) > 0
	if hasRef == hasResource {
		return fmt.Errorf("%w: %s needs exactly one of contentReference and contentResource", ErrInvalidLaunchContext, lc.Name)
	}
	return nil
}

// Context is the context object shared by both SDC requests.
type Context struct {
	Subject       *Reference      `json:"subject,omitempty"`
	Author        *Reference      `json:"author,omitempty"`
	Encounter     *Reference      `json:"encounter,omitempty"`
	LaunchContext []LaunchContext `json:"launchContext,omitempty"`
}

// NewContext builds a Context from launch context entries. It is the single
// path every typed helper funnels into.
func NewContext(entries ...LaunchContext) (*Context, error) {
	c := &Context{}
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return nil, err
		}
		c.LaunchContext = append(c.LaunchContext, e)
	}
	return c, nil
}

// ConfigureContext is the sdc.configureContext payload.
type ConfigureContext struct {
	Context *Context `json:"context,omitempty"`
}

// DisplayQuestionnaire is the sdc.displayQuestionnaire payload. Questionnaire
// is either an inline resource or a JSON string holding a canonical URL.
type DisplayQuestionnaire struct {
	Questionnaire         json.RawMessage `json:"questionnaire"`
	QuestionnaireResponse json.RawMessage `json:"questionnaireResponse,omitempty"`
	Context               *Context        `json:"context,omitempty"`
}

// Canonical encodes a questionnaire canonical URL for DisplayQuestionnaire.
func Canonical(url string) json.RawMessage {
	b, _ := json.Marshal(url)
	return b
}

// Sender is the outbound half of the engine.
type Sender interface {
	SendAsync(messageType string, payload any, handler core.ResponseHandler) (string, error)
}

// SendConfigureContext sends sdc.configureContext and returns the pending
// message id.
func SendConfigureContext(s Sender, req ConfigureContext, handler core.ResponseHandler) (string, error) {
	return s.SendAsync(core.MessageTypeConfigureContext, req, handler)
}

// SendDisplayQuestionnaire sends sdc.displayQuestionnaire and returns the
// pending message id.
func SendDisplayQuestionnaire(s Sender, req DisplayQuestionnaire, handler core.ResponseHandler) (string, error) {
	if len(req.Questionnaire) == 0 {
		return "", ErrMissingQuestionnaire
	}
	return s.SendAsync(core.MessageTypeDisplayQuestionnaire, req, handler)
}
