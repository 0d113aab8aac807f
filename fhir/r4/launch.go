package r4

import (
	"fmt"

	"github.com/hupe1980/swm/sdc"
)

// Reference returns a literal reference ("<type>/<id>") to r.
func Reference(r *Resource) sdc.Reference {
	ref := sdc.Reference{Type: r.ResourceType()}
	if id := r.ID(); id != "" {
		ref.Reference = ref.Type + "/" + id
	}
	return ref
}

// allowedTypes lists the resource types each launch context kind accepts.
var allowedTypes = map[sdc.Kind][]string{
	sdc.KindPatient:   {"Patient"},
	sdc.KindEncounter: {"Encounter"},
	sdc.KindUser:      {"Practitioner", "PractitionerRole", "Patient"},
}

// Launch builds an inline launch context entry, checking that the resource
// type fits the kind.
func Launch(kind sdc.Kind, r *Resource) (sdc.LaunchContext, error) {
	if r == nil {
		return sdc.LaunchContext{}, fmt.Errorf("%w: nil %s resource", sdc.ErrInvalidLaunchContext, kind)
	}
	allowed, ok := allowedTypes[kind]
	if !ok {
		return sdc.LaunchContext{}, fmt.Errorf("%w: unknown kind %q", sdc.ErrInvalidLaunchContext, kind)
	}
	rt := r.ResourceType()
	for _, t := range allowed {
		if t == rt {
			return sdc.Inline(kind, r.Bytes()), nil
		}
	}
	return sdc.LaunchContext{}, fmt.Errorf("%w: %s cannot be a %s", sdc.ErrInvalidLaunchContext, rt, kind)
}

// LaunchContext builds the launch context for a patient, an encounter and a
// user (Practitioner, PractitionerRole or Patient). Nil arguments are skipped.
func LaunchContext(patient, encounter, user *Resource) (*sdc.Context, error) {
	var entries []sdc.LaunchContext
	for _, item := range []struct {
		kind sdc.Kind
		r    *Resource
	}{
		{sdc.KindPatient, patient},
		{sdc.KindEncounter, encounter},
		{sdc.KindUser, user},
	} {
		if item.r == nil {
			continue
		}
		entry, err := Launch(item.kind, item.r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return sdc.NewContext(entries...)
}

// DisplayQuestionnaire builds an sdc.displayQuestionnaire payload carrying
// the questionnaire inline. response may be nil.
func DisplayQuestionnaire(questionnaire, response *Resource, ctx *sdc.Context) (sdc.DisplayQuestionnaire, error) {
	if questionnaire == nil {
		return sdc.DisplayQuestionnaire{}, sdc.ErrMissingQuestionnaire
	}
	if rt := questionnaire.ResourceType(); rt != "Questionnaire" {
		return sdc.DisplayQuestionnaire{}, fmt.Errorf("%w: got %s", sdc.ErrMissingQuestionnaire, rt)
	}
	req := sdc.DisplayQuestionnaire{Questionnaire: questionnaire.Bytes(), Context: ctx}
	if response != nil {
		req.QuestionnaireResponse = response.Bytes()
	}
	return req, nil
}

// DisplayQuestionnaireByURL builds an sdc.displayQuestionnaire payload that
// names the questionnaire by canonical URL.
func DisplayQuestionnaireByURL(canonical string, response *Resource, ctx *sdc.Context) (sdc.DisplayQuestionnaire, error) {
	if canonical == "" {
		return sdc.DisplayQuestionnaire{}, sdc.ErrMissingQuestionnaire
	}
	req := sdc.DisplayQuestionnaire{Questionnaire: sdc.Canonical(canonical), Context: ctx}
	if response != nil {
		req.QuestionnaireResponse = response.Bytes()
	}
	return req, nil
}
