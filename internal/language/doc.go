// Package language maps between ISO 639 codes and the English language names
// used in configuration (subtitle_language = "English") and subtitle reports.
package language
