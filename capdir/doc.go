// The capdir subpackage reads and writes compiled caption databases.
//
// A caption database is a binary file with a small header, a directory
// of fixed size entries sorted by token hash and a data section split
// into fixed size blocks. Each directory entry tells us in which block
// the caption text lives, at which byte offset and how many bytes it
// takes. Text is stored as UTF-16LE, usually null terminated.
//
// The directory is small and gets loaded in full, but the data blocks
// are not read here: that's the job of the blockcache subpackage, which
// streams them in on demand. This package only knows how to compute
// where a block starts and how to decode the text once someone has
// the bytes.
//
// Multiple databases are usually loaded at once (the current language
// and the english fallback), so a [Set] is also provided to resolve
// hashes across files in priority order.
package capdir
