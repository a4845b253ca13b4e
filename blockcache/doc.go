// The blockcache subpackage keeps caption database blocks in memory.
//
// Blocks are the unit of disk I/O: a [Manager] owns at most one resident
// copy of each (file, block) pair, streams them in asynchronously through
// an [AsyncReader] and evicts least recently used blocks once the resident
// bytes go over the configured budget. Blocks locked by a consumer are
// never evicted.
//
// The manager is meant to be driven from a single goroutine (the frame
// loop). The only thing that may happen elsewhere is the completion of
// async reads, and completion callbacks only flip atomic flags. They don't
// touch the manager itself, so there's nothing to synchronize beyond that.
//
// Consumers receive [Handle] values, which are stable arena indices with
// a generation counter. Handles to evicted blocks simply stop resolving;
// they never dangle.
package blockcache
