// Compaction entry point.
package sofa

// Compact commits, then has the engine drop every superseded version.
// Body tokens obtained before the call stop working, whether or not the
// engine succeeds.
func (s *Store) Compact() error {
	if err := s.writable(); err != nil {
		return err
	}
	st := s.conn.Compact()
	s.epoch.Add(1)
	if err := check(s.engine, "compact", st); err != nil {
		return err
	}
	s.log.Debug("sofa: compacted")
	return nil
}
