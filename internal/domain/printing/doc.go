// Package printing contains the Printing bounded context.
// This context owns print jobs and their items, the job state machine,
// and the ports through which jobs reach the operating system spooler
// and the external quota gate.
package printing
