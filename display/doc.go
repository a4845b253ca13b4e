// The display subpackage schedules, animates and paints caption items.
//
// Items go through three states: pre-display (invisible, waiting for
// their delay to run out), visible (their time to live runs down) and
// dying (time to live exhausted). Dying items are removed in order,
// oldest first, so captions always scroll off the top of the box.
//
// Space pressure is resolved when arranging the visible set for
// painting: if the items don't fit, sound effect captions die first,
// then low priority ones, then the oldest ones, until only the minimum
// visible item count remains.
package display
