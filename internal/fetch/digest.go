package fetch

// DigestData returns the digest input sequence for a compiled command:
// the ordered content-relevant values followed by the resolved artifact
// name. Together with CacheType and a cache name it is the sole input
// to the framework's content-addressed lookup, so two descriptors
// agreeing on content-relevant fields always produce byte-identical
// sequences here no matter what their trust-check fields say.
func DigestData(cmd *CompiledCommand) []string {
	out := make([]string, 0, len(cmd.CacheKey)+1)
	out = append(out, cmd.CacheKey...)
	return append(out, cmd.ArtifactName)
}
