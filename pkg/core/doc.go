// Package core defines the shared language of the boardkit system.
//
// This package contains:
//   - Field and schema definitions (FieldDefinition, Schema, SortSpec)
//   - Card records and their auxiliary data (Record, Note)
//   - Migration plans produced by the schema differ (MigrationPlan)
//   - Board slots and assignments (Board, Slot, Assignment)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
