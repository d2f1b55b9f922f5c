// Package php provides static analysis of PHP source files.
//
// It parses files with tree-sitter and reduces them to an outline: the
// namespace and imports, declared classes with their parent, properties,
// methods, return values and method calls. Constant expressions are folded
// into Go values by an Evaluator, which understands enough of PHP to read
// Laravel configuration files (env() with defaults, path helpers, arrays,
// Foo::class and string concatenation).
//
// Design decision: nothing is executed. The outline is built from the
// syntax tree alone, so analysing a project never runs its code and never
// requires a PHP interpreter. Expressions that cannot be folded evaluate to
// nil.
package php
