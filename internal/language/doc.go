// Package language normalizes the language codes and names users pass on the
// command line.
//
// Translation prompts want a readable name ("Traditional Chinese"), the speech
// engine wants an ISO 639-1 code ("zh"), and users type either. BCP 47 tags
// are resolved through golang.org/x/text; a small table covers ISO 639-2 codes
// and English word forms.
package language
