// Package dates turns free-text date expressions found on source pages into
// ascending lists of calendar days.
//
// Supported shapes include single dates ("March 3, 2025", "3 March 2025",
// "2025-03-03"), same-month ranges ("Sept. 5-6, 2025") and cross-month
// ranges ("Sept. 30-Oct. 1, 2025"). A range always expands to every day
// between its endpoints, both included.
//
// When nothing can be parsed the normalizer returns today's date. Callers
// that must not report a fabricated date use Parse and check Fallback.
package dates
