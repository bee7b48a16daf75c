package convert

import (
	"github.com/jinzhu/copier"
)

// StructAssign copies matching exported fields from source into target and
// returns target. Used to map between model, dao and dto layers.
func StructAssign(source any, target any) any {
	_ = copier.CopyWithOption(target, source, copier.Option{DeepCopy: true})
	return target
}
