// Package main hosts the coverharvest CLI.
//
// The cobra command tree resolves configuration once, builds the structured
// logger, and wires the harvest collaborators (MusicBrainz, Cover Art Archive,
// the embedding service, the remote table and object store, the CSV mirror and
// the offset tracker) before handing control to internal/harvest. Subcommands
// also inspect and reset the resume offset and scaffold configuration.
package main
