package capdir

// An ordered list of loaded directories. Lookups go through the
// directories in order and the first match wins, which is how the
// current language shadows the english fallback.
//
// File indices are positions in the set and are what the block
// cache uses to tell databases apart.
type Set struct {
	dirs []*Directory
}

func NewSet(dirs ...*Directory) *Set {
	set := &Set{}
	for _, dir := range dirs {
		if dir != nil { set.dirs = append(set.dirs, dir) }
	}
	return set
}

// Appends a directory with the lowest priority and returns its
// file index.
func (self *Set) Add(dir *Directory) int {
	if dir == nil { panic("nil directory") }
	self.dirs = append(self.dirs, dir)
	return len(self.dirs) - 1
}

// Number of directories in the set.
func (self *Set) Len() int { return len(self.dirs) }

// Returns the directory with the given file index.
func (self *Set) Directory(fileIndex int) *Directory {
	return self.dirs[fileIndex]
}

// Result of a successful [Set.Resolve]().
type Location struct {
	FileIndex int
	DirectoryIndex int
	Entry Entry
}

// Resolves the given hash across all directories, in order.
func (self *Set) Resolve(hash uint32) (Location, bool) {
	for fileIndex, dir := range self.dirs {
		index := dir.Index(hash)
		if index == -1 { continue }
		return Location{
			FileIndex: fileIndex,
			DirectoryIndex: index,
			Entry: dir.entries[index],
		}, true
	}
	return Location{}, false
}

// Same as [Set.Resolve]() but starting from a token name.
func (self *Set) ResolveToken(token string) (Location, bool) {
	return self.Resolve(Hash(token))
}

// Removes all directories.
func (self *Set) Clear() { self.dirs = self.dirs[ : 0] }
