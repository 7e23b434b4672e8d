// Structure of User Model in Saffron.

package entity

const RoleAdmin = "admin"

// Saved in the store under the "users" collection, keyed by Username.
type User struct {
	Username string `json:"username" valid:"required,type(string),printableascii,stringlength(3|20),nospace~username:No spaces allowed here"`
	Password string `json:"password" valid:"required,type(string),minstringlength(5),pwdstrength~password:At least 1 letter and 1 number is mandatory"`
	Role     string `json:"role,omitempty" valid:"-"`
}

type UserLogin struct {
	Username string `json:"username" valid:"required"`
	Password string `json:"password" valid:"required"`
}
