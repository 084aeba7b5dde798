package badger

// Database Key Namespace Design
// =============================
//
// BadgerDB is a key-value store, so we use prefixed keys to organize the
// record types into namespaces. This prevents collisions, enables efficient
// range scans for group membership, and keeps the database structure
// self-documenting.
//
// Key Namespace Prefixes:
//
// Data Type        Prefix   Key Format               Value Type
// ====================================================================
// File Records     "f:"     f:<fileID>               FileRecord (JSON)
// Group Records    "g:"     g:<groupID>              GroupRecord (JSON)
// Group Index      "gf:"    gf:<groupID>:<fileID>    fileID (bytes)
//
// Key Design Rationale:
//
// 1. File Records (f:)
//    - One entry per file, point lookup by id: O(1)
//    - Example: f:550e8400-e29b-41d4-a716-446655440000
//
// 2. Group Records (g:)
//    - One entry per group, point lookup by id: O(1)
//    - Group ids are caller-chosen strings
//    - Example: g:reports-2026
//
// 3. Group Index (gf:)
//    - Denormalized back-reference: one entry per grouped file
//    - Membership is derived from FileRecord.GroupID; this index exists
//      only to make ListFilesByGroup a prefix scan instead of a full
//      table walk
//    - List members: range scan over "gf:<groupID>:"
//    - Maintained inside the same transaction as the file record write,
//      so the index never disagrees with the records
//    - Example: gf:reports-2026:550e8400... → file id bytes

const (
	// prefixFile is the key prefix for file records
	prefixFile = "f:"

	// prefixGroup is the key prefix for group records
	prefixGroup = "g:"

	// prefixGroupIndex is the key prefix for group membership index entries
	prefixGroupIndex = "gf:"
)

// keyFile generates the key for a file record.
func keyFile(id string) []byte {
	return []byte(prefixFile + id)
}

// keyGroup generates the key for a group record.
func keyGroup(id string) []byte {
	return []byte(prefixGroup + id)
}

// keyGroupIndex generates the key for a group membership index entry.
func keyGroupIndex(groupID, fileID string) []byte {
	return []byte(prefixGroupIndex + groupID + ":" + fileID)
}

// keyGroupIndexPrefix generates the prefix for scanning a group's members.
func keyGroupIndexPrefix(groupID string) []byte {
	return []byte(prefixGroupIndex + groupID + ":")
}
