// Package r4 adapts FHIR R4 JSON resources to the engine's resource codec
// capability. Resources stay in their JSON form; only resourceType and id
// are ever interpreted, which is all scratchpad bookkeeping needs.
package r4
