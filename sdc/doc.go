// Package sdc builds the outbound Structured Data Capture requests a host
// sends to a form-filling guest: sdc.configureContext and
// sdc.displayQuestionnaire.
//
// Launch context is described with a closed set of entry kinds (patient,
// encounter, user), each carrying either a reference or an inline resource.
// Version specific sugar (for example package fhir/r4) builds these entries
// from domain resources.
package sdc
