package sipsource

import (
	"strconv"
	"time"

	"github.com/pion/sdp/v3"
)

// buildAnswerSDP строит минимальный аудио SDP для 200 OK:
// один поток PCMU/8000, sendrecv. Медиа трафик этот процесс не
// обслуживает, ответ нужен только для корректного завершения
// сигнального обмена.
func buildAnswerSDP(host string, port int) ([]byte, error) {
	now := uint64(time.Now().Unix())

	answer := &sdp.SessionDescription{
		Version: 0,
		Origin: sdp.Origin{
			Username:       "-",
			SessionID:      now,
			SessionVersion: now,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: host,
		},
		SessionName: "phone_fsm",
		ConnectionInformation: &sdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address:     &sdp.Address{Address: host},
		},
		TimeDescriptions: []sdp.TimeDescription{
			{
				Timing: sdp.Timing{StartTime: 0, StopTime: 0},
			},
		},
	}

	mediaDesc := &sdp.MediaDescription{
		MediaName: sdp.MediaName{
			Media:   "audio",
			Port:    sdp.RangedPort{Value: port},
			Protos:  []string{"RTP", "AVP"},
			Formats: []string{strconv.Itoa(payloadTypePCMU)},
		},
		ConnectionInformation: &sdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address:     &sdp.Address{Address: host},
		},
		Attributes: []sdp.Attribute{
			sdp.NewAttribute("rtpmap", "0 PCMU/8000"),
			sdp.NewPropertyAttribute("sendrecv"),
		},
	}
	answer.MediaDescriptions = []*sdp.MediaDescription{mediaDesc}

	return answer.Marshal()
}

const payloadTypePCMU = 0
