// Package feed binds the identity resolver to the notification channel.
//
// A front end calls Sync whenever the signed-in user or the anonymous key
// may have changed (after login, logout, on page load) and reads the result
// through Notifications or Watch.
package feed
