package permission

import "github.com/Kyz7/reviewhub/internal/models"

// DefaultTree is provisioned when an operator or sub-admin account is created.
// Other roles get no tree.
func DefaultTree(role models.Role) (Tree, bool) {
	switch role {
	case models.RoleOperator:
		return Tree{
			Common(ModuleCompany):  {Create: true, Read: true, Update: true},
			Common(ModuleReview):   {Read: true, Update: true, Delete: true},
			Common(ModuleBlog):     Full(),
			Common(ModuleEvent):    Full(),
			Common(ModuleProduct):  Full(),
			Specific(ModuleReview): {Read: true},
		}, true
	case models.RoleSubAdmin:
		return Tree{
			Common(ModuleCompany): {Read: true},
			Common(ModuleReview):  {Read: true},
			Common(ModuleBlog):    {Read: true, Update: true},
			Common(ModuleUser):    {Read: true},
		}, true
	}
	return nil, false
}
