package fs

import "strings"

// RootInode is the fixed inode number of the filesystem root directory.
const RootInode uint32 = 1

// splitPath breaks an absolute path into its non-empty components. "." and
// ".." are ordinary names here; they are only special in that every
// directory happens to carry entries with those names pointing at itself
// and its parent.
func splitPath(path string) []string {
	var comps []string
	for _, c := range strings.Split(path, "/") {
		if c != "" {
			comps = append(comps, c)
		}
	}
	return comps
}

// resolvePath walks path from the root, returning the inode number and
// record of the final component. An empty or "/" path resolves to the
// root directory itself.
func resolvePath(dev *blockDevice, sb superblock, path string) (uint32, inode, error) {
	comps := splitPath(path)
	curNo := RootInode
	cur, err := readInode(dev, sb, curNo)
	if err != nil {
		return 0, inode{}, err
	}
	for i, name := range comps {
		if cur.Mode != TypeDirectory {
			return 0, inode{}, ErrNotADirectory
		}
		s, ok, err := findDirEntry(dev, cur, name)
		if err != nil {
			return 0, inode{}, err
		}
		if !ok {
			return 0, inode{}, ErrNotFound
		}
		curNo = s.entry.Inode
		cur, err = readInode(dev, sb, curNo)
		if err != nil {
			return 0, inode{}, err
		}
		_ = i
	}
	return curNo, cur, nil
}

// resolveParent splits path into the inode of its containing directory
// and the final component's name, without requiring the final component
// to exist. Used by every operation that creates or removes a name.
func resolveParent(dev *blockDevice, sb superblock, path string) (uint32, inode, string, error) {
	comps := splitPath(path)
	if len(comps) == 0 {
		return 0, inode{}, "", ErrInvalidArgument
	}
	parentPath := "/" + strings.Join(comps[:len(comps)-1], "/")
	parentNo, parent, err := resolvePath(dev, sb, parentPath)
	if err != nil {
		return 0, inode{}, "", err
	}
	if parent.Mode != TypeDirectory {
		return 0, inode{}, "", ErrNotADirectory
	}
	return parentNo, parent, comps[len(comps)-1], nil
}
