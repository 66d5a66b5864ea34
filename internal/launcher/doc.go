// Package launcher detects the companion SPA launch manager.
//
// The manager is present when a launch manifest (spa.proxy.json by default)
// exists next to the application. Its presence is what enables proxying to the
// SPA development server; its ClientUrl is where requests are proxied to.
// Starting and supervising the development server is left to the developer.
package launcher
