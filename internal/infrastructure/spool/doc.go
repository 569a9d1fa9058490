// Package spool talks to the operating system print subsystem: printer enumeration,
// document submission and queue purging.
//
// CUPS is driven through lpstat, lp and cancel; Windows through PowerShell. A preferred
// external tool can sit in front of the native submitter, which is then only used when the
// tool is not installed.
package spool
