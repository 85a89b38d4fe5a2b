// Package io reads and writes generator definitions and results.
//
// # Generator files
//
// A generator file holds one [generator.Generator]. JSON (also under the
// ".dfg" extension), YAML and TOML are accepted and share field names:
//
//	{
//	  "id": "crypt",
//	  "name": "Crypt",
//	  "type": "dungeon",
//	  "graph": {
//	    "nodes": [
//	      {"id": "start", "type": "start"},
//	      {"id": "halls", "type": "room_chain", "data": {"count": 3}},
//	      {"id": "exit", "type": "output"}
//	    ],
//	    "edges": [
//	      {"id": "e1", "source": {"nodeId": "start", "portId": "out"}, "target": {"nodeId": "halls", "portId": "in"}},
//	      {"id": "e2", "source": {"nodeId": "halls", "portId": "out"}, "target": {"nodeId": "exit", "portId": "in"}}
//	    ]
//	  },
//	  "constraints": [{"id": "connected", "type": "connected"}],
//	  "parameters": [{"name": "minRoomSize", "type": "number", "default": 5}]
//	}
//
// Node ports may be omitted; each node type has a default port set.
//
// # Results
//
// Generation and simulation results are written as indented JSON with
// [WriteJSON] and [ExportJSON].
package io
