// Package model defines the data structures aimap assembles into a project map.
//
// This package contains the following main types:
//   - OrderedMap: an insertion-ordered JSON object
//   - ProjectMap: the top-level snapshot, keyed by section name
//   - Column, Index, ForeignKey, TableSchema: database catalog entries
//   - ModelDescriptor, Relationship: Eloquent model metadata
//   - Route: one entry of the framework router table
//   - Panel: one admin panel with its resources, pages and widgets
//
// Design decision: The types are pass-through descriptions of metadata the
// inspected application already exposes. aimap neither owns nor validates
// them; it only flattens them into JSON. Keeping them in one package avoids
// import cycles between the producers and the report writers.
package model
