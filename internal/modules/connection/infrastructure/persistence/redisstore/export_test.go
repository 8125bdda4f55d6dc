package redisstore

// OnAfterRead installs a hook that runs inside the watched read-then-write.
func (r *ConnectionRepository) OnAfterRead(fn func()) {
	r.afterRead = fn
}
