package repositories

// QuillDbRepository gathers all repository methods against the quill
// database. Methods take an Executor (pool or transaction) explicitly.
type QuillDbRepository struct{}
