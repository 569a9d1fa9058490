// Package profiles holds the label transform profiles and the registry that classifies
// a source artifact into one of them.
//
// Profiles are consulted in registration order. Carrier-specific profiles go first and the
// universal profile is always registered last as the fallback, so classification is total.
package profiles
