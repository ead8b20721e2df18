package orders

const TopicOrderPlaced = "order.placed"

// Partition key = order code, so downstream consumers see one order's events in order.
func PartitionKey(orderCode string) []byte { return []byte(orderCode) }
