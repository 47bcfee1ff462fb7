package badger

// Key layout
// ==========
//
// Every entry is addressed by its canonical path. Three namespaces keep
// records, file bodies and directory membership apart:
//
// Data Type        Prefix   Key Format                  Value
// ================================================================
// Entry record     "e:"     e:<path>                    record (JSON)
// File body        "d:"     d:<path>                    codec byte + body
// Child link       "c:"     c:<parent>\x00<name>        empty
//
// Child links make a directory listing a single prefix scan over
// "c:<parent>\x00" instead of a scan over every descendant. The NUL
// separator cannot appear in a path segment, so "/a" and "/ab" never share
// a child prefix.

const childSep = "\x00"

func keyEntry(path string) []byte {
	return []byte("e:" + path)
}

// keyEntryDescendants is the prefix of every entry strictly below dir.
func keyEntryDescendants(dir string) []byte {
	if dir == "/" {
		return []byte("e:/")
	}
	return []byte("e:" + dir + "/")
}

func keyData(path string) []byte {
	return []byte("d:" + path)
}

func keyChild(parent, name string) []byte {
	return []byte("c:" + parent + childSep + name)
}

func keyChildPrefix(parent string) []byte {
	return []byte("c:" + parent + childSep)
}
