// Structure of Menu Model in Saffron.

package entity

// Saved in the store under the "menu" collection, keyed by ID.
type MenuItem struct {
	ID          string `json:"id" yaml:"id" valid:"required,nospace~id:No spaces allowed here"`
	Name        string `json:"name" yaml:"name" valid:"required,stringlength(2|60)"`
	Description string `json:"description,omitempty" yaml:"description" valid:"optional,stringlength(0|300)"`
	Category    string `json:"category" yaml:"category" valid:"required,alphanum~category:Category must be a single word"`
	Price       int64  `json:"price" yaml:"price" valid:"required,range(1|10000000)~price:Price must be positive"`
	Available   bool   `json:"available" yaml:"available" valid:"-"`
	Image       string `json:"image,omitempty" yaml:"image" valid:"-"`
}

// Layout of the YAML menu seed file.
type MenuCatalog struct {
	Items []MenuItem `yaml:"items"`
}
