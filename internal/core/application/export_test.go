package application

// ExpandBatch returns the cmds of a batch, ok is false if msg is not one.
func ExpandBatch(msg Msg) ([]Cmd, bool) {
	batch, ok := msg.(batchMsg)
	return batch, ok
}
