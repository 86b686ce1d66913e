package libvirt

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// DomainDisk domain XML 中的一个磁盘设备
type DomainDisk struct {
	// Device 目标设备名，如 vda、vdb
	Device string
	// Source 宿主机上的镜像文件路径
	Source string
	// Bus 总线类型，如 virtio
	Bus string
}

type domainDesc struct {
	XMLName xml.Name `xml:"domain"`
	Devices struct {
		Disks []struct {
			Device string `xml:"device,attr"`
			Source struct {
				File string `xml:"file,attr"`
				Dev  string `xml:"dev,attr"`
			} `xml:"source"`
			Target struct {
				Dev string `xml:"dev,attr"`
				Bus string `xml:"bus,attr"`
			} `xml:"target"`
		} `xml:"disk"`
	} `xml:"devices"`
}

// ParseDomainDisks 从 domain XML 中提取磁盘设备
// 跳过 cdrom 等非 disk 设备
func ParseDomainDisks(xmlDesc string) ([]DomainDisk, error) {
	var desc domainDesc
	if err := xml.NewDecoder(strings.NewReader(xmlDesc)).Decode(&desc); err != nil {
		return nil, fmt.Errorf("parse domain XML: %w", err)
	}
	disks := make([]DomainDisk, 0, len(desc.Devices.Disks))
	for _, d := range desc.Devices.Disks {
		if d.Device != "disk" {
			continue
		}
		source := d.Source.File
		if source == "" {
			source = d.Source.Dev
		}
		disks = append(disks, DomainDisk{
			Device: d.Target.Dev,
			Source: source,
			Bus:    d.Target.Bus,
		})
	}
	return disks, nil
}
