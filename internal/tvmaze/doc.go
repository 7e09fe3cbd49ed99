// Package tvmaze reads show and episode schedules from the TVmaze API.
//
// Client issues rate-limited GET requests and keeps decoded bodies in an
// in-process cache, optionally backed by a persistent ResponseCache so repeat
// invocations of the CLI stay off the network. Source adapts a Client to the
// configured list of shows and answers the "what aired on these dates" and
// "list this show" questions the CLI asks.
package tvmaze
