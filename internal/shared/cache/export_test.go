package cache

// SetIfGenerationHash exposes the script digest so tests can match EVALSHA calls.
func SetIfGenerationHash() string {
	return setIfGeneration.Hash()
}
