package reconciler

import "github.com/corenet/netd/pkg/types"

// walkSubtree visits every container reachable from root, breadth
// first, including root itself.
func walkSubtree(iter types.ContainerIterator, root types.ContainerHandle, visit func(types.ContainerHandle)) {
	queue := []types.ContainerHandle{root}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		visit(c)
		queue = append(queue, iter.Children(c)...)
	}
}

// reverseBFS returns every container in the tree ordered leaves-first:
// a breadth-first walk from the root, reversed, so a container's
// children are always processed (and thus TC-programmed) before it.
func reverseBFS(iter types.ContainerIterator) []types.ContainerHandle {
	if iter == nil {
		return nil
	}
	var order []types.ContainerHandle
	walkSubtree(iter, iter.Root(), func(c types.ContainerHandle) {
		order = append(order, c)
	})
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}
