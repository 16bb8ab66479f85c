package catalog

import (
	"hash/fnv"

	"deploykit/reconciler-service/pkg/model"
)

// InShard reports whether a deployment file belongs to the given shard.
// Sharding is static: fnv32a(name) mod shardCount. A shardCount below two
// disables partitioning.
func InShard(name string, shardID, shardCount int) bool {
	if shardCount < 2 {
		return true
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int(h.Sum32())%shardCount == shardID
}

// FilterShard returns the deployment files owned by the given shard.
func FilterShard(files []model.DeploymentFile, shardID, shardCount int) []model.DeploymentFile {
	if shardCount < 2 {
		return files
	}
	filtered := make([]model.DeploymentFile, 0, len(files))
	for _, file := range files {
		if InShard(file.Name, shardID, shardCount) {
			filtered = append(filtered, file)
		}
	}
	return filtered
}
