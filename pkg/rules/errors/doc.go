// Package errors provides rich, accumulating error reporting for rule
// file parsing and validation. Instead of failing on the first problem, a
// loader collects every error it finds into an ErrorList so authors can
// fix a whole file in one pass.
package errors
