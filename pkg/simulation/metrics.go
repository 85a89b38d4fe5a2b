package simulation

import (
	"github.com/matzehuels/dungeonforge/pkg/layout"
)

// Metric names reported per run.
const (
	MetricRoomCount       = "roomCount"
	MetricPathLength      = "pathLength"
	MetricEnemyCount      = "enemyCount"
	MetricItemCount       = "itemCount"
	MetricConnectionCount = "connectionCount"
	MetricSpawnPointCount = "spawnPointCount"
	MetricEntityCount     = "entityCount"
	MetricExitCount       = "exitCount"
)

// MetricNames lists every metric in report order.
var MetricNames = []string{
	MetricRoomCount,
	MetricPathLength,
	MetricEnemyCount,
	MetricItemCount,
	MetricConnectionCount,
	MetricSpawnPointCount,
	MetricEntityCount,
	MetricExitCount,
}

// Measure extracts every metric from a layout.
//
// pathLength is the number of rooms on the longest of the shortest paths
// from the start room to an exit room. enemyCount includes enemy spawn
// points. itemCount counts loot entities.
func Measure(l *layout.DungeonLayout) map[string]float64 {
	m := map[string]float64{
		MetricRoomCount:       float64(len(l.Rooms)),
		MetricConnectionCount: float64(len(l.Connections)),
		MetricSpawnPointCount: float64(len(l.SpawnPoints)),
		MetricExitCount:       float64(len(l.Exits)),
	}

	var enemies, items, entities int
	for _, e := range l.Entities() {
		entities++
		switch e.Type {
		case layout.EntityEnemy:
			enemies++
		case layout.EntityLoot:
			items++
		}
	}
	for _, sp := range l.SpawnPoints {
		if sp.Type == layout.EntityEnemy {
			enemies++
		}
	}
	m[MetricEnemyCount] = float64(enemies)
	m[MetricItemCount] = float64(items)
	m[MetricEntityCount] = float64(entities)

	longest := 0
	if l.StartRoomID != "" {
		for _, exit := range l.ExitRoomIDs {
			if exit == "" {
				continue
			}
			longest = max(longest, len(l.ShortestPath(l.StartRoomID, exit)))
		}
	}
	m[MetricPathLength] = float64(longest)
	return m
}
