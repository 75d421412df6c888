package orchestrator

import "path"

// Artifact file name fragments. Artifacts live under
// {operationId}/[json/]{name}.{csv|json|mrc}.
const (
	matchedRecordsName   = "Matched-Records"
	modifiedRecordsName  = "Modified-Records"
	committedRecordsName = "Committed-Records"

	csvExt  = ".csv"
	jsonExt = ".json"
	marcExt = ".mrc"
)

// artifactPath builds the storage path of a top-level artifact.
func artifactPath(operationID, name string) string {
	return path.Join(operationID, name)
}

// jsonArtifactPath builds the storage path of a JSON artifact, which live in
// a json/ subdirectory to keep origin blobs apart from tabular files.
func jsonArtifactPath(operationID, name string) string {
	return path.Join(operationID, "json", name)
}
