package interpolation

import (
	"fmt"

	"github.com/san-kum/p3msim/internal/dynamo"
)

// MaxOrder is the highest supported assignment order.
const MaxOrder = 7

// ValidateOrder rejects assignment orders outside 1..MaxOrder.
func ValidateOrder(order int) error {
	if order < 1 || order > MaxOrder {
		return fmt.Errorf("%w: order %d not in [1, %d]", dynamo.ErrInvalidOrder, order, MaxOrder)
	}
	return nil
}

// BSpline returns the i-th weight of the cardinal B-spline of the given order
// at normalized offset x in [-0.5, 0.5]. Out of range i or order yields 0.
func BSpline(order, i int, x float64) float64 {
	if i < 0 || i >= order {
		return 0
	}
	switch order {
	case 1:
		return 1
	case 2:
		switch i {
		case 0:
			return 0.5 - x
		default:
			return 0.5 + x
		}
	case 3:
		switch i {
		case 0:
			return 0.5 * (0.5 - x) * (0.5 - x)
		case 1:
			return 0.75 - x*x
		default:
			return 0.5 * (0.5 + x) * (0.5 + x)
		}
	case 4:
		switch i {
		case 0:
			return (1 + x*(-6+x*(12-x*8))) / 48
		case 1:
			return (23 + x*(-30+x*(-12+x*24))) / 48
		case 2:
			return (23 + x*(30+x*(-12-x*24))) / 48
		default:
			return (1 + x*(6+x*(12+x*8))) / 48
		}
	case 5:
		switch i {
		case 0:
			return (1 + x*(-8+x*(24+x*(-32+x*16)))) / 384
		case 1:
			return (19 + x*(-44+x*(24+x*(16-x*16)))) / 96
		case 2:
			return (115 + x*x*(-120+x*x*48)) / 192
		case 3:
			return (19 + x*(44+x*(24+x*(-16-x*16)))) / 96
		default:
			return (1 + x*(8+x*(24+x*(32+x*16)))) / 384
		}
	case 6:
		switch i {
		case 0:
			return (1 + x*(-10+x*(40+x*(-80+x*(80-x*32))))) / 3840
		case 1:
			return (237 + x*(-750+x*(840+x*(-240+x*(-240+x*160))))) / 3840
		case 2:
			return (841 + x*(-770+x*(-440+x*(560+x*(80-x*160))))) / 1920
		case 3:
			return (841 + x*(770+x*(-440+x*(-560+x*(80+x*160))))) / 1920
		case 4:
			return (237 + x*(750+x*(840+x*(240+x*(-240-x*160))))) / 3840
		default:
			return (1 + x*(10+x*(40+x*(80+x*(80+x*32))))) / 3840
		}
	case 7:
		switch i {
		case 0:
			return (1 + x*(-12+x*(60+x*(-160+x*(240+x*(-192+x*64)))))) / 46080
		case 1:
			return (361 + x*(-1416+x*(2220+x*(-1600+x*(240+x*(384-x*192)))))) / 23040
		case 2:
			return (10543 + x*(-17340+x*(4740+x*(6880+x*(-4080+x*(-960+x*960)))))) / 46080
		case 3:
			return (5887 + x*x*(-4620+x*x*(1680-x*x*320))) / 11520
		case 4:
			return (10543 + x*(17340+x*(4740+x*(-6880+x*(-4080+x*(960+x*960)))))) / 46080
		case 5:
			return (361 + x*(1416+x*(2220+x*(1600+x*(240+x*(-384-x*192)))))) / 23040
		default:
			return (1 + x*(12+x*(60+x*(160+x*(240+x*(192+x*64)))))) / 46080
		}
	}
	return 0
}

// Weights evaluates assignment weights for a fixed order.
type Weights interface {
	Order() int
	Weight(i int, x float64) float64
}

// Spline evaluates the closed-form B-spline polynomials.
type Spline struct {
	order int
}

func NewSpline(order int) (Spline, error) {
	if err := ValidateOrder(order); err != nil {
		return Spline{}, err
	}
	return Spline{order: order}, nil
}

func (s Spline) Order() int                      { return s.order }
func (s Spline) Weight(i int, x float64) float64 { return BSpline(s.order, i, x) }
