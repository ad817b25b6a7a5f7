// Package expr provides CEL (Common Expression Language) functionality for
// evaluating governance policy expressions.
//
// Severity remap policies have access to variables:
//   - `rule` (map<string, dyn>): The rule being overridden
//   - `from` (string): The upstream severity
//   - `to` (string): The locally remapped severity
//
// Expressions must return a boolean. Examples:
//   - severityRank(to) >= severityRank(from) - only allow escalation
//   - from != "error" - error-severity rules may not be remapped
//   - rule.id.startsWith("style-") - only style rules may be remapped
//
// CEL also provides standard functions like `startsWith`, `contains`,
// `matches`, list functions like `filter`, `exists`, `in`, and logical
// operators like `&&`, `||`, and `!`.
package expr
