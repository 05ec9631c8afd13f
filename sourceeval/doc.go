// Package sourceeval scores a block of research output against an
// allow list of trusted domains. It extracts the URLs cited in the text,
// normalizes their hosts, and decides pass/fail from the fraction that
// fall under the allow list.
package sourceeval
