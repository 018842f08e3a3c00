// Package preflight provides readiness checks for the directories, external
// tools and translation backend subforge depends on.
//
// "subforge config validate" runs them and prints one row per check. The LLM
// check makes a network call and only runs when requested.
package preflight
