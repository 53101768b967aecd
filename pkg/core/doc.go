// Package core defines the shared language of the migration pipeline.
//
// This package contains:
//   - Domain entities (Asset, DialectConfig)
//   - The normalized, dialect-independent AST (statements, expressions, DDL)
//   - Translation and validation outcomes (TranslationNote, Finding, Verdict, RunSummary)
//
// The Golden Rule: pkg/core imports ONLY pkg/token and stdlib.
// All other packages depend on core, not the reverse.
package core
