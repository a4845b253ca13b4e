// The request subpackage bridges caption identifiers to ready-to-display
// caption text.
//
// Requests are resolved against a [capdir.Set] and produce a [Ticket].
// The [Pipeline] asks the block cache for each ticket's blocks and, as
// they become loaded, copies each token's text out of its block, so
// tickets never depend on block lifetimes. A ticket can be assembled once
// all its parts have been copied.
//
// Tickets that never become ready (missing blocks, I/O failures) are not
// an error condition: they simply age out.
package request
