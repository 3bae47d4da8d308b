package view

import "errors"

// ErrSystemView indicates an attempt to delete a system workflow list or
// explicitly remove rows from one. System lists are fixed; rows leave them
// only by moving to another list.
var ErrSystemView = errors.New("system views cannot be modified")
